// Package gemini implements product classification and scene generation
// using Google's Gemini API through the google.golang.org/genai client.
//
// Classification sends the framed product photo to a text model with a
// system instruction listing the allowed CATEGORY|SUBCATEGORY answers.
// Scene generation sends the same photo with a context prompt to an image
// capable model and returns the first inline image of the response.
package gemini
