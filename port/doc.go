// Package port provides the typed vocabulary graph nodes use to
// declare and access their inputs and outputs.
//
// A node declares its interface with immutable descriptors, one per
// tag: Input, Output, SideInput and SideOutput, parameterized by
// payload type. Modifier methods compose by value: Optional tolerates
// a missing connection, Multiple accepts variable arity, SameTypeAs
// infers the type from a peer port, and SideFallback accepts a value
// as a stream or as a side packet under one tag.
//
// Descriptors serve two phases. At contract-build time,
// AddToContract registers the tag's type requirement in the node's
// Contract, where graph validation checks connections and runs
// same-type inference. At execution time, Bind resolves the tag
// against the invocation's Context and returns a typed access
// wrapper: a StreamReader, StreamWriter, SideReader, SideWriter,
// Fallback or Multi view. Wrappers are cheap transient views over
// slots owned by the executor and must not outlive the invocation.
//
// A tag with no matching slot yields a disconnected wrapper whose
// operations are defined no-ops, so optional ports need no nil
// checks:
//
//	var inFrame = port.NewInput[Frame]("FRAME")
//	var outSize = port.NewOutput[int]("SIZE").Optional()
//
//	func declare(c *port.Contract) {
//	    inFrame.AddToContract(c)
//	    outSize.AddToContract(c)
//	}
//
//	func process(ctx *port.Context) {
//	    frame, ok := inFrame.Bind(ctx).Consume()
//	    if ok {
//	        outSize.Bind(ctx).Send(len(frame.Pixels))
//	    }
//	}
package port
