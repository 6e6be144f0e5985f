package handlers

import (
	"encoding/json"
	"strconv"

	"tourbook/internal/domain"

	"github.com/gin-gonic/gin"
)

// parseID reads the :id path param. Malformed identifiers are reported the
// same as missing documents, per the external interface contract.
func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrNoDocument()
	}
	return id, nil
}

// bindDoc decodes the request body into a key-presence patch map.
func bindDoc(c *gin.Context) (map[string]any, error) {
	doc := map[string]any{}
	if c.Request.Body == nil {
		return nil, domain.BadRequest("Invalid data sent")
	}
	if err := json.NewDecoder(c.Request.Body).Decode(&doc); err != nil {
		return nil, domain.BadRequest("Invalid data sent")
	}
	return doc, nil
}
