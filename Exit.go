/*
File Name:  Exit.go
Copyright:  2021 Peernet s.r.o.
*/

package nebula

// Exit codes signal why the application exited.
// Clients are encouraged to log additional details in a log file.
const (
	ExitSuccess            = 0          // This is actually never used.
	ExitErrorConfigAccess  = 1          // Error accessing the config file.
	ExitErrorConfigRead    = 2          // Error reading the config file.
	ExitErrorConfigParse   = 3          // Error parsing the config file.
	ExitErrorLogInit       = 4          // Error initializing log file.
	ExitParamWebapiInvalid = 5          // Parameter for webapi is invalid.
	ExitErrorListen        = 6          // Cannot listen on the configured address.
	ExitErrorSelfAddress   = 7          // The own address is invalid, no node ID could be derived.
	ExitErrorBlacklist     = 8          // Blacklist database cannot be opened.
	ExitGraceful           = 9          // Graceful shutdown.
	ExitParamApiKeyInvalid = 10         // API key parameter is invalid.
	STATUS_CONTROL_C_EXIT  = 0xC000013A // The application terminated as a result of a CTRL+C. This is a Windows NTSTATUS value.
)
