// Package controller coordinates a fleet of generation workers. It is
// structured into small files by concern:
//
//   - controller.go: Controller type, lifecycle state machine, getters.
//   - config.go: Config and package defaults; New applies defaults.
//   - types.go: State, WorkerRecord, Job, Assignment, SourceInfo.
//   - errors.go: error types and helpers (IsNotFound, IsAlreadyBusy, ...).
//   - pool.go: Pool, the set of worker records with per-record locking.
//   - outputlog.go: OutputLog, the bounded rolling log.
//   - queue.go: DispatchQueue, pending jobs derived from a prompt file.
//   - dispatch.go: feeding idle workers and recording job outcomes.
//   - status_report.go: Status/Workers projections for the HTTP layer.
//   - events.go, eventpub_*.go: lifecycle events and publishers.
//   - metrics.go: Prometheus collectors.
//
// The controller never runs jobs itself. A driving process (see package
// fleet) calls Dispatch, runs the returned assignments, and reports each
// outcome through RecordJobCompletion or RecordJobFailure.
package controller
