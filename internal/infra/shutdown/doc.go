// Package shutdown coordinates ordered teardown of server components.
//
// Wait blocks until SIGINT, SIGTERM or a programmatic Trigger (used
// when the cache server loses a listener), then runs the registered
// hooks newest-first under one shared deadline. Components register in
// startup order, so teardown naturally reverses the dependency chain:
// listeners close before the engine that backs them.
//
// @design DS-0501
package shutdown
