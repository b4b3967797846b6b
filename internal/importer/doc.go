// Package importer drives the concurrent import pipeline.
//
// Discovery runs sequentially and completes before any worker starts. Each
// candidate file then flows through validate → classify → extract →
// dedup-check → derive → place on one worker, with every error caught at
// file granularity and converted to an outcome. Two locks protect shared
// state: the placement lock serializes checksum check-then-act together
// with the destination existence check and write, and a separate reporting
// lock covers counters and the session log so progress never stalls behind
// filesystem latency.
package importer
