package tui

// Color constants for the session timer theme
const (
	ColorPrimaryText   = "#E8F0EA" // Volunteer name, titles
	ColorSecondaryText = "#ADBDB2" // Subtle green-tinted grey
	ColorHelpText      = "240"     // Dark grey for help text

	ColorAccentBright = "#4ADE80" // Highlights, the running clock
)
