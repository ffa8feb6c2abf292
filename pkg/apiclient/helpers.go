package apiclient

import (
	"fmt"
	"net/http"
)

// Generic helpers shared by the resource files. The resource methods stay
// one-liners by funneling through these.

// requestResource issues a request and decodes the response into a T.
func requestResource[T any](c *Client, method, path string, body any) (*T, error) {
	var result T
	if err := c.do(method, path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// getResource fetches the resource at path.
func getResource[T any](c *Client, path string) (*T, error) {
	return requestResource[T](c, http.MethodGet, path, nil)
}

// listResources fetches the collection at path.
func listResources[T any](c *Client, path string) ([]T, error) {
	var results []T
	if err := c.do(http.MethodGet, path, nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// createResource POSTs body to path and decodes the created resource.
func createResource[T any](c *Client, path string, body any) (*T, error) {
	return requestResource[T](c, http.MethodPost, path, body)
}

// updateResource PUTs body to path and decodes the updated resource.
func updateResource[T any](c *Client, path string, body any) (*T, error) {
	return requestResource[T](c, http.MethodPut, path, body)
}

// deleteResource removes the resource at path.
func deleteResource(c *Client, path string) error {
	return c.do(http.MethodDelete, path, nil, nil)
}

// resourcePath formats a path template with its arguments.
func resourcePath(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
