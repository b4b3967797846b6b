// Command mediasort sorts photo and video collections into a derived
// directory hierarchy, deduplicating by content digest along the way.
package main
