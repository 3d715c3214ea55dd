package theme

const DefaultName = "default"

func palette(bg, fg, cursor, selection string, ansi [16]string) Colors {
	return Colors{
		Background: bg, Foreground: fg, Cursor: cursor, Selection: selection,
		Black: ansi[0], Red: ansi[1], Green: ansi[2], Yellow: ansi[3],
		Blue: ansi[4], Magenta: ansi[5], Cyan: ansi[6], White: ansi[7],
		BrightBlack: ansi[8], BrightRed: ansi[9], BrightGreen: ansi[10], BrightYellow: ansi[11],
		BrightBlue: ansi[12], BrightMagenta: ansi[13], BrightCyan: ansi[14], BrightWhite: ansi[15],
	}
}

var presets = []Theme{
	{
		Name: DefaultName, DisplayName: "Default Dark",
		Colors: palette("#1e1e1e", "#d4d4d4", "#aeafad", "#264f78", [16]string{
			"#000000", "#cd3131", "#0dbc79", "#e5e510", "#2472c8", "#bc3fbc", "#11a8cd", "#e5e5e5",
			"#666666", "#f14c4c", "#23d18b", "#f5f543", "#3b8eea", "#d670d6", "#29b8db", "#ffffff",
		}),
	},
	{
		Name: "dracula", DisplayName: "Dracula",
		Colors: palette("#282a36", "#f8f8f2", "#f8f8f2", "#44475a", [16]string{
			"#21222c", "#ff5555", "#50fa7b", "#f1fa8c", "#bd93f9", "#ff79c6", "#8be9fd", "#f8f8f2",
			"#6272a4", "#ff6e6e", "#69ff94", "#ffffa5", "#d6acff", "#ff92df", "#a4ffff", "#ffffff",
		}),
	},
	{
		Name: "monokai", DisplayName: "Monokai",
		Colors: palette("#272822", "#f8f8f2", "#f8f8f0", "#49483e", [16]string{
			"#272822", "#f92672", "#a6e22e", "#f4bf75", "#66d9ef", "#ae81ff", "#a1efe4", "#f8f8f2",
			"#75715e", "#f92672", "#a6e22e", "#f4bf75", "#66d9ef", "#ae81ff", "#a1efe4", "#f9f8f5",
		}),
	},
	{
		Name: "nord", DisplayName: "Nord",
		Colors: palette("#2e3440", "#d8dee9", "#d8dee9", "#434c5e", [16]string{
			"#3b4252", "#bf616a", "#a3be8c", "#ebcb8b", "#81a1c1", "#b48ead", "#88c0d0", "#e5e9f0",
			"#4c566a", "#bf616a", "#a3be8c", "#ebcb8b", "#81a1c1", "#b48ead", "#8fbcbb", "#eceff4",
		}),
	},
	{
		Name: "solarized-dark", DisplayName: "Solarized Dark",
		Colors: palette("#002b36", "#839496", "#93a1a1", "#073642", [16]string{
			"#073642", "#dc322f", "#859900", "#b58900", "#268bd2", "#d33682", "#2aa198", "#eee8d5",
			"#002b36", "#cb4b16", "#586e75", "#657b83", "#839496", "#6c71c4", "#93a1a1", "#fdf6e3",
		}),
	},
	{
		Name: "gruvbox", DisplayName: "Gruvbox Dark",
		Colors: palette("#282828", "#ebdbb2", "#ebdbb2", "#504945", [16]string{
			"#282828", "#cc241d", "#98971a", "#d79921", "#458588", "#b16286", "#689d6a", "#a89984",
			"#928374", "#fb4934", "#b8bb26", "#fabd2f", "#83a598", "#d3869b", "#8ec07c", "#ebdbb2",
		}),
	},
}
