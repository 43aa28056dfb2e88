// Package extract recovers structured sale data from the free-form bodies
// of marketplace "item sold" notification emails. Extraction is pure and
// tolerant: each field is matched independently and a missing field is a
// warning, never a failure.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// SaleRecord is one sale recovered from one message. Optional money fields
// are nil when the matching label was not found in the body.
type SaleRecord struct {
	CertNumber      string
	SaleDate        civil.Date
	ItemTitle       string
	SoldAmount      *float64
	NetProceeds     *float64
	FeesPaid        *float64
	SourceMessageID string
}

// Row returns the record in the fixed sheet column order:
// cert, date, title, sold, fees, net, message id. Absent money fields
// become empty cells.
func (r *SaleRecord) Row() []interface{} {
	return []interface{}{
		r.CertNumber,
		r.SaleDate.String(),
		r.ItemTitle,
		moneyCell(r.SoldAmount),
		moneyCell(r.FeesPaid),
		moneyCell(r.NetProceeds),
		r.SourceMessageID,
	}
}

func moneyCell(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

var (
	// Certification id: recognized grading-issuer prefix plus numeric code.
	certPattern = regexp.MustCompile(`(?i)\b(PSA|BGS|SGC|CGC|CSG)\s*#?\s*(\d{6,10})\b`)

	salePricePattern   = regexp.MustCompile(`(?i)Sale Price:?\s*\$?([0-9][0-9,]*(?:\.[0-9]+)?)`)
	netProceedsPattern = regexp.MustCompile(`(?i)Net Proceeds:?\s*\$?([0-9][0-9,]*(?:\.[0-9]+)?)`)
	listingEndPattern  = regexp.MustCompile(`(?i)Listing ended:?\s*([A-Za-z]{3,9}\.? \d{1,2}, \d{4}|\d{4}-\d{2}-\d{2})`)

	whitespaceRun = regexp.MustCompile(`\s+`)
)

var listingEndLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"Jan. 2, 2006",
	"2006-01-02",
}

// Extract parses one message body into a SaleRecord. received is the
// message's own timestamp, used as the sale date when the body carries no
// listing-end date. The returned warning list names the fields that were
// not found; it is observability only.
//
// Extraction fails as a whole only on a runtime fault while parsing; any
// panic is recovered into the returned error and the record is dropped.
func Extract(body, subject string, received time.Time) (rec *SaleRecord, warnings []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			warnings = nil
			err = fmt.Errorf("extract: parse fault: %v", r)
		}
	}()

	rec = &SaleRecord{
		SaleDate:  civil.DateOf(received),
		ItemTitle: subject,
	}

	certLoc := certPattern.FindStringSubmatchIndex(body)
	if certLoc != nil {
		prefix := strings.ToUpper(body[certLoc[2]:certLoc[3]])
		code := body[certLoc[4]:certLoc[5]]
		rec.CertNumber = prefix + " " + code
	} else {
		warnings = append(warnings, "cert_number")
	}

	priceLoc := salePricePattern.FindStringSubmatchIndex(body)
	if priceLoc != nil {
		amount, perr := ParseMoney(body[priceLoc[2]:priceLoc[3]])
		if perr != nil {
			warnings = append(warnings, "sale_price")
		} else {
			rec.SoldAmount = &amount
		}
	} else {
		warnings = append(warnings, "sale_price")
	}

	if loc := netProceedsPattern.FindStringSubmatch(body); loc != nil {
		amount, perr := ParseMoney(loc[1])
		if perr != nil {
			warnings = append(warnings, "net_proceeds")
		} else {
			rec.NetProceeds = &amount
		}
	} else {
		warnings = append(warnings, "net_proceeds")
	}

	// Title is the span between the cert match and the sale-price label.
	// Without both anchors the subject stands in for it.
	if certLoc != nil && priceLoc != nil && certLoc[1] <= priceLoc[0] {
		title := collapseWhitespace(body[certLoc[1]:priceLoc[0]])
		if title != "" {
			rec.ItemTitle = title
		}
	}

	if m := listingEndPattern.FindStringSubmatch(body); m != nil {
		if d, ok := parseListingEnd(m[1]); ok {
			rec.SaleDate = d
		} else {
			warnings = append(warnings, "listing_end_date")
		}
	} else {
		warnings = append(warnings, "listing_end_date")
	}

	if rec.SoldAmount != nil && rec.NetProceeds != nil {
		fees := Round2(*rec.SoldAmount - *rec.NetProceeds)
		rec.FeesPaid = &fees
	}

	return rec, warnings, nil
}

// FindCert returns the normalized certification identifier in body, or ""
// when no recognized issuer pattern matches.
func FindCert(body string) string {
	m := certPattern.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1]) + " " + m[2]
}

func parseListingEnd(s string) (civil.Date, bool) {
	for _, layout := range listingEndLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
