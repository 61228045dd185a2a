package oracle

// Schema helpers for building the JSON Schema documents that oracle responses
// are validated against.

// ArraySchema creates an array schema with the given item type.
func ArraySchema(itemType map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":  "array",
		"items": itemType,
	}
}

// StringProperty creates a string schema with an optional minimum length.
func StringProperty(minLength int) map[string]interface{} {
	prop := map[string]interface{}{
		"type": "string",
	}
	if minLength > 0 {
		prop["minLength"] = minLength
	}
	return prop
}

// StringListSchema is the response contract for every list-producing prompt
// (tags, growing traits, weakening traits): a bare JSON array of non-empty
// strings.
func StringListSchema() map[string]interface{} {
	return ArraySchema(StringProperty(1))
}
