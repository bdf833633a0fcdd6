// Package logtail reads the end of the client log file and renders its JSON
// records as single readable lines for the in-app log view.
//
// Read keeps a ring buffer of maxLines entries, so memory stays bounded no
// matter how large the file grows. A missing file reads as empty.
//
//	lines, err := logtail.Read(cfg.LogFile, 400)
//	if err != nil {
//		return err
//	}
//	view.SetContent(strings.Join(logtail.FormatLines(lines), "\n"))
//
// FormatLine turns
//
//	{"level":"warn","plate":"ABC1D23","time":"2024-03-10T15:00:00Z","message":"refresh failed"}
//
// into
//
//	10/03/2024 12:00 WRN refresh failed plate=ABC1D23
//
// with the timestamp shown in Brasília time. Lines that are not JSON, such as
// console-format output, pass through unchanged.
package logtail
