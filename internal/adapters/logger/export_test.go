package logger

// CollectAndFormat exposes the chain rendering without a handler.
func CollectAndFormat(err error) string {
	return formatErrorEntries(collectErrorEntries(err))
}
