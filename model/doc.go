// Package model contains the data shapes shared by every stage of the
// moderated-action pipeline: the action payload union, verification
// challenges, moderation items, the side-effect targets (content, updates,
// subscribers) and the error taxonomy.
//
// Payloads are a closed tagged union.  Each variant is a value type and every
// consumer that needs per-kind behaviour implements Visitor, so adding a new
// action kind fails to compile until every consumer handles it.
package model
