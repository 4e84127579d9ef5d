package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"tenzinsgym/pos/internal/listutil"

	"github.com/araddon/dateparse"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// pathID parses an ObjectID path parameter, aborting with 400 when malformed.
func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid %s format", name))
		return primitive.NilObjectID, false
	}
	return id, true
}

// parseObjectID parses an optional id from a request body.
func parseObjectID(field, hex string) (*primitive.ObjectID, error) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid %s format", field)
	}
	return &id, nil
}

// parseDate accepts the usual date spellings ("2025-06-01", "06/01/2025",
// RFC 3339 and so on) interpreted in loc. Empty yields the zero time.
func parseDate(field, value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := dateparse.ParseIn(value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q", field, value)
	}
	return t, nil
}

// dateRange reads from and to query parameters. Both default to today and a
// missing end defaults to the start.
func dateRange(c *gin.Context, loc *time.Location, now time.Time) (time.Time, time.Time, bool) {
	from, err := parseDate("from", c.Query("from"), loc)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return time.Time{}, time.Time{}, false
	}
	to, err := parseDate("to", c.Query("to"), loc)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return time.Time{}, time.Time{}, false
	}
	if from.IsZero() {
		from = now.In(loc)
	}
	if to.IsZero() {
		to = from
	}
	return from, to, true
}

func listParams(c *gin.Context, perPage int, sortCols, filterKeys []string) listutil.Params {
	return listutil.Parse(c.Request.URL.Query(), perPage, sortCols, filterKeys)
}

// attachment sets the headers for a file download.
func attachment(c *gin.Context, filename, contentType string) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", contentType)
}
