// Package dispatch routes wiki persistence messages to the page store.
//
// A Dispatcher is bound to one bus address. Each inbound message carries an
// "action" header naming one of a closed set of Actions and a JSON body with
// that action's parameters. Handling a message has exactly three outcomes:
//
//  1. No action header: fail with NoActionSpecified; the store is not touched.
//  2. Unknown action: fail with BadAction naming it.
//  3. Known action: run the store operation, then reply with its payload or
//     fail with DBError carrying the error text.
//
// The dispatcher keeps no state between messages and never retries. Handle
// returns an explicit Result; Serve is the adapter that turns a Result into
// a bus reply or failure.
//
// Startup is ordered: Start ensures the schema first and registers on the
// bus only if that succeeded.
package dispatch
