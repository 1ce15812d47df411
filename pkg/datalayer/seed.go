package datalayer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

const dummyBatchSize = 100

// DummyBookStartDate is the publication date of the first dummy book; each
// following one is a day later.
var DummyBookStartDate = time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FourBooks returns the four well-known books, unsaved. Martin Fowler is the
// same *Author in the first two.
func FourBooks() []*Book {
	fowler := &Author{Name: "Martin Fowler"}
	return []*Book{
		{
			Title:       "Refactoring",
			Description: "Improving the design of existing code",
			PublishedOn: date(1999, time.July, 8),
			Publisher:   "Addison-Wesley",
			Price:       40,
			Authors:     []*Author{fowler},
		},
		{
			Title:       "Patterns of Enterprise Application Architecture",
			Description: "Written in direct response to the stiff challenges",
			PublishedOn: date(2002, time.November, 15),
			Publisher:   "Addison-Wesley",
			Price:       53,
			Authors:     []*Author{fowler},
		},
		{
			Title:       "Domain-Driven Design",
			Description: "Linking business needs to software design",
			PublishedOn: date(2003, time.August, 30),
			Publisher:   "Addison-Wesley",
			Price:       56,
			Authors:     []*Author{{Name: "Eric Evans"}},
		},
		{
			Title:       "Quantum Networking",
			Description: "Entangled quantum networking provides faster-than-light data communications",
			PublishedOn: date(2057, time.January, 1),
			Publisher:   "Future Published",
			Price:       220,
			Authors:     []*Author{{Name: "Future Person"}},
		},
	}
}

// SeedFourBooks writes FourBooks and returns them with their keys set.
func SeedFourBooks(db *gorm.DB) ([]*Book, error) {
	books := FourBooks()
	err := db.Transaction(func(tx *gorm.DB) error {
		// shared authors are inserted once, before the books referencing them
		authors := uniqueAuthors(books)
		if err := tx.Create(&authors).Error; err != nil {
			return err
		}
		return tx.Create(&books).Error
	})
	if err != nil {
		return nil, fmt.Errorf("seed four books: %w", err)
	}
	return books, nil
}

func uniqueAuthors(books []*Book) []*Author {
	seen := make(map[*Author]bool)
	var out []*Author
	for _, b := range books {
		for _, a := range b.Authors {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return out
}

// SeedDummyBooks writes n generated books, each with its own author, in
// batches.
func SeedDummyBooks(db *gorm.DB, n int) ([]*Book, error) {
	books := make([]*Book, n)
	for i := range books {
		books[i] = &Book{
			Title:       fmt.Sprintf("Book%04d Title", i),
			Description: fmt.Sprintf("Book%04d Description", i),
			PublishedOn: DummyBookStartDate.AddDate(0, 0, i),
			Publisher:   "Manning",
			Price:       float64(i + 1),
			Authors:     []*Author{{Name: fmt.Sprintf("Author%04d", i)}},
		}
	}
	if n == 0 {
		return books, nil
	}
	if err := db.CreateInBatches(&books, dummyBatchSize).Error; err != nil {
		return nil, fmt.Errorf("seed %d dummy books: %w", n, err)
	}
	return books, nil
}

// SeedBookSummaries writes one summary with details per book.
func SeedBookSummaries(db *gorm.DB, books []*Book) ([]*BookSummary, error) {
	summaries := make([]*BookSummary, len(books))
	for i, b := range books {
		names := make([]string, len(b.Authors))
		for j, a := range b.Authors {
			names[j] = a.Name
		}
		summaries[i] = &BookSummary{
			Title:         b.Title,
			AuthorsString: strings.Join(names, ", "),
			Details:       &BookDetail{Description: b.Description, Price: b.Price},
		}
	}
	if len(summaries) == 0 {
		return summaries, nil
	}
	if err := db.Create(&summaries).Error; err != nil {
		return nil, fmt.Errorf("seed book summaries: %w", err)
	}
	return summaries, nil
}

// SeedOrderWithPayment writes an order to a fixed address and attaches
// payment to it.
func SeedOrderWithPayment(db *gorm.DB, orderNumber string, payment Payment) (*OrderInfo, error) {
	addr := Address{
		Name:            "Jane Reader",
		Address1:        "1 Library Lane",
		Town:            "Bookham",
		ZipPostCode:     "BK1 2AB",
		CountryCodeIso2: "GB",
	}
	order := &OrderInfo{
		OrderNumber:     orderNumber,
		BillingAddress:  addr,
		DeliveryAddress: addr,
		Payments:        []Payment{payment},
	}
	if err := db.Create(order).Error; err != nil {
		return nil, fmt.Errorf("seed order %s: %w", orderNumber, err)
	}
	return order, nil
}

// FindBookByTitle returns the first book with exactly this title. The
// boolean is false when there is none.
func FindBookByTitle(db *gorm.DB, title string) (*Book, bool, error) {
	var book Book
	err := db.Where("title = ?", title).First(&book).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return &book, true, nil
}
