// Package core is the pure restaurant and order domain: commands, events, deciders, sagas and views.
//
// Nothing in here performs I/O. The shell package maps the domain to the event store.
//
// Rejections are events, except on a prepared order: OrderPrepared is final, so the OrderNotPrepared
// decided for a second MarkOrderAsPrepared cannot be appended to the order's stream. Handling such a
// command fails with eventstore.ErrStreamFinalized and aborts the batch it belongs to.
package core
