// Package component defines the lifecycle interface shared by the parts of
// a taskflow service and a registry that starts them in order and stops
// them in reverse.
//
// # Interfaces
//
//   - Component: Start/Stop/Health lifecycle
//   - Describable: startup summary description
//   - RouteProvider: HTTP routes for the startup summary
package component
