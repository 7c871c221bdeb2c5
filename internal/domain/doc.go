// Package domain contains the core value objects of the image processing
// service: uploaded images, processing modes and the validation rules that
// apply to them before any work is scheduled. It is independent of any
// specific provider, storage or delivery mechanism.
package domain
