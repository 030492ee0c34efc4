// Package jobs tracks the lifecycle of asynchronous document ingestion jobs.
//
// A job moves through fixed stages (file_saving, text_extraction, chunking,
// embedding_generation) to a terminal completed or failed state. Each stage
// pins a completion percentage, and percentage never moves backward.
// Terminal states are immutable: any update after completion or failure
// returns ErrJobFinished.
//
// Jobs live in process memory only. Restarting the service forgets all
// in-flight and historical jobs.
package jobs
