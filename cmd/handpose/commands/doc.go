// Package commands defines the handpose CLI and wires dependencies for subcommands.
//
// Commands
//
//   - run                 Run the camera detection loop with the HTTP server
//   - classify FILE       Classify a recorded hand from a JSON file
//   - templates list      List built-in and custom gesture templates
//   - templates add       Add a custom template from a JSON definition
//   - templates remove    Remove a custom template
//
// # Implementation
//
// The root command loads the configuration and prepares the data directory
// before any subcommand runs. Subcommands open the template store themselves
// so that classify works without one.
package commands
