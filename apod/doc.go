// Package apod provides a client for NASA's Astronomy Picture of the Day API.
//
// The client validates caller input before anything goes over the wire,
// classifies failed responses into a small set of error kinds and decodes
// successful responses into Entry values.
//
// # Usage
//
//	logger := zerolog.New(os.Stderr)
//	client := apod.NewClient(apod.Config{
//		APIKey: "your-api-key",
//		Logger: &logger,
//	})
//	defer client.Close()
//
//	resp, err := client.FetchByDateRange(ctx, apod.NewDate(2008, 10, 29), apod.NewDate(2008, 11, 2))
//	if err != nil {
//		log.Fatal(err) // network failure or closed client
//	}
//	if !resp.OK() {
//		fmt.Println(resp.Error.Kind, resp.Error.Message)
//		return
//	}
//	for _, entry := range resp.Entries {
//		fmt.Println(entry.Date.Format("2006-01-02"), entry.Title)
//	}
//
// # Error Handling
//
// Validation and upstream API errors are values: they come back in
// Response.Error with Response.Status set to StatusError, and a rejected
// request never reaches the transport. The error return is reserved for
// conditions with no meaningful response:
//
//   - ErrDisposed: the client was closed
//   - *TransportError: the request could not be sent or its body read
//   - *DecodeError: a successful response held something other than entries
//
// # Dates
//
// The last valid date is "today" in America/New_York, where the service
// publishes. Dates passed to the client are compared by calendar day.
package apod
