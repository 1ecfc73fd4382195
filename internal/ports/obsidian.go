package ports

// ObsidianOpener launches the Obsidian app on a note
type ObsidianOpener interface {
	// OpenFile opens an absolute path inside the vault through an
	// obsidian://open URI
	OpenFile(filePath string) error
}
