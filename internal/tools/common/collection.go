package common

// GetCollectionFromArgs extracts the calendar collection path from request
// arguments. Returns an empty string when the request does not target a
// specific collection (for example calendar discovery tools).
func GetCollectionFromArgs(args map[string]interface{}) string {
	if collection, ok := args["calendarUrl"].(string); ok {
		return collection
	}
	return ""
}
