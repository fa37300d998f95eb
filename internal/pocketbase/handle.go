package pocketbase

// Handle is either an available client or the explicit absence of one (for example while the
// backend URL is not configured). The zero value is unavailable.
type Handle struct {
	client *Client
}

// Available wraps a configured client.
func Available(c *Client) Handle {
	return Handle{client: c}
}

// Unavailable is the handle used when there is no backend to talk to.
func Unavailable() Handle {
	return Handle{}
}

// Client returns the wrapped client and whether the handle is available.
func (h Handle) Client() (*Client, bool) {
	return h.client, h.client != nil
}

// IsAvailable reports whether the handle wraps a client.
func (h Handle) IsAvailable() bool {
	return h.client != nil
}

func (h Handle) String() string {
	if h.client == nil {
		return "Unavailable"
	}
	return "Available(" + h.client.baseURL + ")"
}
