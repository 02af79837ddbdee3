package gateway

import (
	"encoding/xml"
	"net/http"
)

// MessagingResponse is the TwiML envelope the messaging carrier
// expects: a single Message element inside a Response element.
type MessagingResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// RenderTwiML serializes a reply text into a TwiML document.
func RenderTwiML(text string) ([]byte, error) {
	out, err := xml.Marshal(MessagingResponse{Message: text})
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// writeTwiML writes the reply as a text/xml TwiML document.
func writeTwiML(w http.ResponseWriter, text string) {
	doc, err := RenderTwiML(text)
	if err != nil {
		http.Error(w, "failed to render reply", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}
