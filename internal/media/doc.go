// Package media classifies files into the closed variant set
// {Photo, Video, Audio, Text} and extracts capture metadata from them.
//
// Classification is a pure lookup against an immutable extension registry
// built once at process start, so concurrent workers share it without
// synchronization. Extractors hold no shared mutable state and are safe to
// invoke concurrently on independent files.
package media
