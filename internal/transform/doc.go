// Package transform turns one uploaded product image into one processed
// image. The white pipeline delegates to a background removal provider; the
// interior pipeline frames the product on a 3:4 canvas, classifies it, and
// asks an image generation provider to place it in a matching scene.
//
// Every call receives all of its parameters explicitly, so pipelines can run
// concurrently for different tasks without sharing mutable state.
package transform
