// Package pipeline provides a framework for executing mirror steps in sequence.
//
// The pipeline pattern is used to process a wiki through multiple stages:
// login, page enumeration, page fetching, resource harvesting, rewriting,
// site writing, and publishing. Each stage is implemented as a Step that
// receives the current report and can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running mirrors
// 4. It enables potential parallelization of independent steps in the future
//
// Page fetching runs with bounded concurrency using errgroup, gated by a
// shared politeness ticker.
package pipeline
