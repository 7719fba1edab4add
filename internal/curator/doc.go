// package curator owns the seed-song interaction state machine.
//
// A [Controller] moves between three views:
//
//	Input   --submit(invalid)--> Input (error set)
//	Input   --submit(valid)----> Loading
//	Loading --success----------> Result
//	Loading --failure----------> Input (error set, seed kept)
//	Loading --abandon----------> Input (seed kept, no error)
//	Result  --retry------------> Input (cleared)
//
// Event-loop callers split a request into [Controller.Submit], [Controller.Fetch]
// and [Controller.Resolve] so the network call can run off the loop; every submit
// carries a generation and resolutions for an older generation are dropped.
// Synchronous callers use [Controller.Run].
package curator
