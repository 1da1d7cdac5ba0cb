// Package commands defines the keyfount CLI.
//
// Commands
//
//   - seed    Generate a random seed or derive one from a passphrase
//   - root    Derive the root key pair from a seed
//   - child   Derive a child key, publicly from a generator or privately
//     from a seed
//   - verify  Check that public and private child derivation agree
//
// # Implementation
//
// The root command resolves the seed source (--seed hex or --passphrase)
// and builds the logger before any subcommand runs. Private material is
// printed only on explicit request and transient secret buffers are erased
// after use.
package commands
