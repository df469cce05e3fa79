// Package param declares which configuration values must be supplied from outside a
// program, and where they come from.
//
// A configuration struct (by convention a type whose name ends in "Config") marks the
// fields that hold externally supplied values with a Marker. Two marker kinds exist:
//
//   - EnvSecret: the value is read from an environment variable. The variable name
//     defaults to "{TypeName}__{FieldName}".
//   - RemoteStore: the value is read from a remote parameter store such as AWS SSM
//     Parameter Store. The path fragment defaults to "{TypeName}/{FieldName}".
//
// Both kinds accept an explicit override.
//
// # Declaring parameters
//
// Markers are attached with struct tags and registered once per module, typically from
// an init function:
//
//	type SmtpConfig struct {
//	    Host     string
//	    Password string `envsecret:"" ssm:""`
//	    ApiKey   string `envsecret:"SENDGRID_API_KEY" ssm:"Sendgrid/ApiKey"`
//	}
//
//	func init() {
//	    param.MustRegisterTypes("github.com/acme/mail", []string{"github.com/acme/core"}, SmtpConfig{})
//	}
//
// Describe turns a struct into a ConfigType once at registration time, so discovery
// never needs to inspect types while scanning.
//
// # Modules and the registry
//
// A Module groups the configuration types of one Go module together with the modules it
// requires. The Registry is the in-process Source consumed by the discovery scanner;
// ModuleOf maps any value to the registered module that owns its package, which is how
// a test suite names the entry module it wants scanned.
package param
