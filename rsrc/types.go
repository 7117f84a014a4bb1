package rsrc

// Well-known top-level resource type IDs, per the standard PE resource
// set (RT_*). Supplemental to the core codec: naming a type ID is
// purely cosmetic and doesn't affect decode/encode.
const (
	RTCursor       = 1
	RTBitmap       = 2
	RTIcon         = 3
	RTMenu         = 4
	RTDialog       = 5
	RTString       = 6
	RTFontDir      = 7
	RTFont         = 8
	RTAccelerator  = 9
	RTRCData       = 10
	RTMessageTable = 11
	RTGroupCursor  = 12
	RTGroupIcon    = 14
	RTVersion      = 16
	RTDlgInclude   = 17
	RTPlugPlay     = 19
	RTVXD          = 20
	RTAniCursor    = 21
	RTAniIcon      = 22
	RTHTML         = 23
	RTManifest     = 24
)

var resourceTypeNames = map[uint32]string{
	RTCursor:       "RT_CURSOR",
	RTBitmap:       "RT_BITMAP",
	RTIcon:         "RT_ICON",
	RTMenu:         "RT_MENU",
	RTDialog:       "RT_DIALOG",
	RTString:       "RT_STRING",
	RTFontDir:      "RT_FONTDIR",
	RTFont:         "RT_FONT",
	RTAccelerator:  "RT_ACCELERATOR",
	RTRCData:       "RT_RCDATA",
	RTMessageTable: "RT_MESSAGETABLE",
	RTGroupCursor:  "RT_GROUP_CURSOR",
	RTGroupIcon:    "RT_GROUP_ICON",
	RTVersion:      "RT_VERSION",
	RTDlgInclude:   "RT_DLGINCLUDE",
	RTPlugPlay:     "RT_PLUGPLAY",
	RTVXD:          "RT_VXD",
	RTAniCursor:    "RT_ANICURSOR",
	RTAniIcon:      "RT_ANIICON",
	RTHTML:         "RT_HTML",
	RTManifest:     "RT_MANIFEST",
}

// ResourceTypeName returns the RT_* constant name for id, or "" if id
// isn't one of the well-known top-level resource types.
func ResourceTypeName(id uint32) string {
	return resourceTypeNames[id]
}

// ResourceTypeName returns the RT_* name for e's identity if e is a
// top-level, ID-keyed entry naming a well-known resource type; otherwise "".
func (e *Entry) ResourceTypeName() string {
	if e.Identity.IsName() || e.Parent == nil || e.Parent.Parent != nil {
		return ""
	}
	return ResourceTypeName(e.Identity.ID())
}
