// Package memory provides the long-term memory engine of the agent.
//
// Memories are one-sentence summaries of past exchanges, stored in a vector
// store together with the unit-norm embedding of the raw exchange and a small
// set of semantic tags. The package decides which memories are relevant for a
// new message and whether a finished exchange becomes a new memory.
//
// Architecture:
//   - Store: Vector storage backend (chromem-go, cosine distance)
//   - Embedder: Text-to-vector conversion (Ollama, or the mock for tests)
//   - HybridRanker: Similarity threshold plus tag-overlap ranking
//   - ActiveSet / ShortTermBuffer: Session-scoped working set
//   - Manager: Retrieval, persistence decision and commit
//
// Integration:
//   - RETRIEVE phase: Manager.Retrieve before prompt assembly
//   - RECORD phase: Manager.ShouldSave and Manager.Commit after generation
//
// The text-generation service is consumed through core.Completer and is
// injected at construction; this package never depends on the engine.
package memory
