// Package pathing derives the canonical destination path for a media file
// from its capture metadata.
//
// Derivation is a pure function of metadata and configuration: repeated
// calls yield byte-identical paths and no synchronization is needed. The
// only filesystem knowledge enters through the exists probe the caller
// supplies (held under the placement lock) when resolving collisions.
package pathing
