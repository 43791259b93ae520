package products

import (
	"encoding/xml"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const smsFallback = "Thank you for your message! Please visit our online store to place an order."

// PriceReply answers an inbound text with the price of the first catalog
// product whose name occurs in it.
func PriceReply(catalog []Product, body string) string {
	fold := cases.Fold()
	message := fold.String(body)
	title := cases.Title(language.English)
	for _, p := range catalog {
		name := fold.String(strings.TrimSpace(p.Name))
		if name == "" || !strings.Contains(message, name) {
			continue
		}
		return fmt.Sprintf("The price for %s is ₹%.2f.", title.String(name), p.SellingPrice)
	}
	return smsFallback
}

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

// TwiML wraps message in a messaging response document.
func TwiML(message string) ([]byte, error) {
	body, err := xml.Marshal(twimlResponse{Message: message})
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
