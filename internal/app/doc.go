// Package app bootstraps ems.
//
// NewApplication runs the same sequence for every command:
//
//  1. load configuration (defaults, YAML file, EMS_* environment)
//  2. configure logging from the configuration and the --debug flag
//  3. build the services a command needs
//
// # Services
//
// The durable session storage is the JSON session file or the OS keyring,
// depending on session.storage. The volatile storage is held in memory and
// lives exactly as long as the process, which is what confines the PKCE
// verifier to a single login run or a single shell.
//
// On top of the storages sit the session Repository and Inspector, the
// OAuth client with its discovery cache, the login/logout Flow and the
// gateway client. Commands never build these themselves.
//
// # Example
//
//	application, err := app.NewApplication(app.NewConfig(debug, quiet, configPath))
//	if err != nil {
//	    return err
//	}
//	services := application.Services()
//	departments, err := services.Gateway.Departments.List(ctx)
package app
