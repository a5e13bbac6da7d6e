package main

// Theme holds the hex colours used by every screen.
type Theme struct {
	Name     string
	BG       string
	Text     string // status title and time
	MenuTxt  string
	SelBG    string
	SelTxt   string
	Icon     string // battery and volume glyphs
	ProgLine string
	Progress string
	Face     string // idle face
	Warning  string
}

var ThemeLCD = Theme{
	Name:     "LCD",
	BG:       "#000000",
	Text:     "#D3D3D3",
	MenuTxt:  "#FFFFFF",
	SelBG:    "#D3D3D3",
	SelTxt:   "#000000",
	Icon:     "#808080",
	ProgLine: "#D3D3D3",
	Progress: "#00FF00",
	Face:     "#FFFFFF",
	Warning:  "#FF5555",
}
