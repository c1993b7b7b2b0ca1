// Package relay is the conversation service: it takes one inbound text for
// a conversation and turns it into a reply or a structured rejection.
//
// For each message Handle runs, in order:
//
//  1. ignore blank text and commands
//  2. reject text longer than the input limit
//  3. reject when the conversation's rate window is full
//  4. append the user turn to history and trim
//  5. call the gateway with the full trimmed history, holding no lock
//  6. append the reply (or the fallback text) and trim
//
// Rejections in steps 2 and 3 leave history untouched. A gateway failure
// leaves the user turn in place. Outcome.Text renders every result as the
// message to deliver.
package relay
