package planning

// Layout carries page-geometry parameters for the renderer. Lengths are LaTeX
// dimensions; negative margins tighten the page.
type Layout struct {
	FontSizePt   int    `json:"font_size_pt"`
	SideMargin   string `json:"side_margin"`
	TextWidth    string `json:"text_width"`
	TopMargin    string `json:"top_margin"`
	TextHeight   string `json:"text_height"`
	SectionSpace string `json:"section_space"`
	ItemSep      string `json:"item_sep"`
	ListEndSpace string `json:"list_end_space"`
	EntrySpace   string `json:"entry_space"`
}

// DefaultLayouts returns spacing that tightens as the tier rises
func DefaultLayouts() map[Tier]Layout {
	return map[Tier]Layout{
		TierLight: {
			FontSizePt: 11, SideMargin: "-0.55in", TextWidth: "1.1in", TopMargin: "-0.5in", TextHeight: "1.0in",
			SectionSpace: "-5pt", ItemSep: "-1pt", ListEndSpace: "-5pt", EntrySpace: "4pt",
		},
		TierMedium: {
			FontSizePt: 10, SideMargin: "-0.6in", TextWidth: "1.2in", TopMargin: "-0.55in", TextHeight: "1.1in",
			SectionSpace: "-6pt", ItemSep: "-2pt", ListEndSpace: "-5pt", EntrySpace: "3pt",
		},
		TierAggressive: {
			FontSizePt: 10, SideMargin: "-0.65in", TextWidth: "1.3in", TopMargin: "-0.6in", TextHeight: "1.2in",
			SectionSpace: "-6pt", ItemSep: "-2pt", ListEndSpace: "-5pt", EntrySpace: "2pt",
		},
		TierMaximum: {
			FontSizePt: 10, SideMargin: "-0.7in", TextWidth: "1.4in", TopMargin: "-0.65in", TextHeight: "1.3in",
			SectionSpace: "-7pt", ItemSep: "-3pt", ListEndSpace: "-6pt", EntrySpace: "1pt",
		},
	}
}
