package pocketbase

import "net/url"

// FileURL builds the public URL of an uploaded file. It returns "" when fileName is empty.
func (c *Client) FileURL(collection, recordID, fileName string, query url.Values) string {
	if fileName == "" || recordID == "" {
		return ""
	}
	u := c.baseURL + "/api/files/" + url.PathEscape(collection) + "/" + url.PathEscape(recordID) + "/" + url.PathEscape(fileName)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// FileURL on an unavailable handle yields "".
func (h Handle) FileURL(collection, recordID, fileName string) string {
	c, ok := h.Client()
	if !ok {
		return ""
	}
	return c.FileURL(collection, recordID, fileName, nil)
}
