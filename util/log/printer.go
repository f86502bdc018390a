package log

// Printer adapts this package to libraries that accept a Printf-style logger,
// such as cron.PrintfLogger.
type Printer struct {
	Prefix string
}

// Printf forwards to the package level Printf.
func (p Printer) Printf(format string, v ...interface{}) {
	Printf(p.Prefix+format, v...)
}
