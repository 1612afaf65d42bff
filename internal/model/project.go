package model

// Project is a saved QR code artifact. IDs are assigned by the backend;
// Name is a user-chosen label and is not unique.
type Project struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Text    string `json:"text"`
	QRColor string `json:"qrColor,omitempty"`
	BGColor string `json:"bgColor,omitempty"`
	// QRImage is a base64 PNG snapshot, write-only from the client side:
	// we upload it on save/customize, the server displays it in lists.
	QRImage string `json:"qrImage,omitempty"`
	Time    string `json:"time,omitempty"` // ISO 8601, last modified
}

const (
	DefaultQRColor = "#000000"
	DefaultBGColor = "#ffffff"
)

// EffectiveQRColor returns the stored foreground color or the default.
func (p Project) EffectiveQRColor() string {
	if p.QRColor == "" {
		return DefaultQRColor
	}
	return p.QRColor
}

// EffectiveBGColor returns the stored background color or the default.
func (p Project) EffectiveBGColor() string {
	if p.BGColor == "" {
		return DefaultBGColor
	}
	return p.BGColor
}
