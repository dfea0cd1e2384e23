// Package bus is an in-process message bus with point-to-point
// request/reply, fire-and-forget send, and publish.
//
// Consumers bind a Handler to an address. A requester sends a JSON body with
// string headers and waits for exactly one outcome: a reply body or a
// failure carrying a numeric code and a message (*ReplyError). Bodies are
// encoded when sent, so sender and receiver never share memory.
//
// Each delivery runs on its own goroutine. There is no ordering between
// concurrently sent messages, and an in-flight request cannot be retracted;
// the requester only stops waiting when its deadline passes.
//
// When several consumers share an address, point-to-point messages are
// spread across them round-robin. Publish reaches all of them.
package bus
