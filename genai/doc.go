// Package genai is a client for the Generative Language REST API.
//
// A Client owns one httpclient.Executor, and with it one sliding-window
// rate limiter. Resources hang off the client:
//
//	c, err := genai.New(genai.Config{APIKey: key})
//	defer c.Close(ctx)
//
//	resp, err := c.Models.GenerateText(ctx, "", "Write a haiku about Go.")
//	fmt.Println(resp.Text())
//
// Requests are validated before anything is sent; such failures are
// *errors.AppError values. Server rejections surface as *APIError when the
// body carries the standard error envelope, and as *httpclient.Error
// otherwise. Both unwrap to the executor error, so httpclient.IsTimeout and
// the other classifiers work on every returned error.
package genai
