package store

import (
	"time"

	"github.com/cleared-dev/tally/internal/model"
)

// Row types are kept apart from the domain model so gorm tags and foreign keys
// do not leak into the calculation packages.

type invoiceSequenceRecord struct {
	TenantID  int64 `gorm:"primaryKey;autoIncrement:false"`
	Year      int   `gorm:"primaryKey;autoIncrement:false"`
	LastValue int64 `gorm:"not null"`
}

func (invoiceSequenceRecord) TableName() string { return "invoice_sequences" }

type vatCodeRecord struct {
	Code        string `gorm:"primaryKey;size:10"`
	Rate        amount `gorm:"precision:7;scale:4;not null"`
	Description string
	Active      bool
}

func (vatCodeRecord) TableName() string { return "vat_codes" }

func (r vatCodeRecord) toModel() model.VatCode {
	return model.VatCode{Code: r.Code, Rate: r.Rate.Decimal, Description: r.Description, Active: r.Active}
}

type customerRecord struct {
	ID       int64  `gorm:"primaryKey"`
	TenantID int64  `gorm:"index;not null"`
	Name     string `gorm:"not null"`
}

func (customerRecord) TableName() string { return "customers" }

type invoiceRecord struct {
	ID           int64  `gorm:"primaryKey"`
	TenantID     int64  `gorm:"not null;uniqueIndex:idx_invoice_tenant_number"`
	Number       string `gorm:"size:32;not null;uniqueIndex:idx_invoice_tenant_number"`
	IssueDate    time.Time
	DueDate      *time.Time
	CurrencyCode string `gorm:"size:3;not null"`
	CustomerID   int64
	CreatedAt    time.Time
	Lines        []invoiceLineRecord `gorm:"foreignKey:InvoiceID"`
}

func (invoiceRecord) TableName() string { return "invoices" }

type invoiceLineRecord struct {
	ID              int64      `gorm:"primaryKey"`
	InvoiceID       int64      `gorm:"index;not null"`
	Position        int        `gorm:"not null"`
	ItemName        string     `gorm:"size:25;not null"`
	Quantity        int        `gorm:"not null"`
	UnitPrice       amount     `gorm:"precision:38;scale:4;not null"`
	DiscountPercent nullAmount `gorm:"precision:7;scale:4"`
	VatCode         string     `gorm:"size:10;not null"`
}

func (invoiceLineRecord) TableName() string { return "invoice_lines" }

func newInvoiceRecord(inv *model.Invoice) invoiceRecord {
	rec := invoiceRecord{
		ID:           inv.ID,
		TenantID:     int64(inv.TenantID),
		Number:       inv.Number,
		IssueDate:    inv.IssueDate,
		DueDate:      inv.DueDate,
		CurrencyCode: inv.CurrencyCode,
		CustomerID:   inv.CustomerID,
	}
	for i, l := range inv.Lines {
		rec.Lines = append(rec.Lines, invoiceLineRecord{
			Position:        i,
			ItemName:        l.ItemName,
			Quantity:        l.Quantity,
			UnitPrice:       amount{l.UnitPrice},
			DiscountPercent: toNullAmount(l.DiscountPercent),
			VatCode:         l.VatCode,
		})
	}
	return rec
}

func (r invoiceRecord) toModel() model.Invoice {
	inv := model.Invoice{
		ID:           r.ID,
		TenantID:     model.TenantID(r.TenantID),
		Number:       r.Number,
		IssueDate:    r.IssueDate,
		DueDate:      r.DueDate,
		CurrencyCode: r.CurrencyCode,
		CustomerID:   r.CustomerID,
		CreatedAt:    r.CreatedAt,
	}
	for _, lr := range r.Lines {
		inv.Lines = append(inv.Lines, model.InvoiceLine{
			ID:              lr.ID,
			ItemName:        lr.ItemName,
			Quantity:        lr.Quantity,
			UnitPrice:       lr.UnitPrice.Decimal,
			DiscountPercent: lr.DiscountPercent.ptr(),
			VatCode:         lr.VatCode,
		})
	}
	return inv
}

type expenseCategoryRecord struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null;uniqueIndex"`
	Description string
	Active      bool
}

func (expenseCategoryRecord) TableName() string { return "expense_categories" }

func (r expenseCategoryRecord) toModel() model.ExpenseCategory {
	return model.ExpenseCategory{ID: r.ID, Name: r.Name, Description: r.Description, Active: r.Active}
}

type expenseRecord struct {
	ID            int64  `gorm:"primaryKey"`
	TenantID      int64  `gorm:"index;not null"`
	Title         string `gorm:"size:255;not null"`
	Description   string
	ExpenseDate   time.Time `gorm:"index"`
	CategoryID    int64
	Status        string `gorm:"size:20;not null"`
	Amount        amount `gorm:"precision:38;scale:4;not null"`
	AccountNumber string `gorm:"size:10"`
	ReceiptPath   string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Costs         []costRecord       `gorm:"foreignKey:ExpenseID"`
	Attachments   []attachmentRecord `gorm:"foreignKey:ExpenseID"`
}

func (expenseRecord) TableName() string { return "expenses" }

type costRecord struct {
	ID          int64     `gorm:"primaryKey"`
	ExpenseID   int64     `gorm:"index;not null"`
	Position    int       `gorm:"not null"`
	Title       string    `gorm:"size:255;not null"`
	Date        time.Time `gorm:"not null"`
	Amount      amount    `gorm:"precision:38;scale:4;not null"`
	VatPercent  int       `gorm:"not null"`
	Currency    string    `gorm:"size:3;not null"`
	PaymentType string    `gorm:"size:20;not null"`
	Chargeable  bool
}

func (costRecord) TableName() string { return "costs" }

type attachmentRecord struct {
	ID        int64  `gorm:"primaryKey"`
	ExpenseID int64  `gorm:"index;not null"`
	Filename  string `gorm:"not null"`
	MimeType  string
	Data      []byte
	CreatedAt time.Time
}

func (attachmentRecord) TableName() string { return "attachments" }

func newCostRecords(expenseID int64, costs []model.Cost) []costRecord {
	recs := make([]costRecord, 0, len(costs))
	for i, c := range costs {
		recs = append(recs, costRecord{
			ExpenseID:   expenseID,
			Position:    i,
			Title:       c.Title,
			Date:        c.Date,
			Amount:      amount{c.Amount},
			VatPercent:  c.VatPercent,
			Currency:    c.Currency,
			PaymentType: string(c.PaymentType),
			Chargeable:  c.Chargeable,
		})
	}
	return recs
}

func newExpenseRecord(exp *model.Expense) expenseRecord {
	return expenseRecord{
		ID:            exp.ID,
		TenantID:      int64(exp.TenantID),
		Title:         exp.Title,
		Description:   exp.Description,
		ExpenseDate:   exp.ExpenseDate,
		CategoryID:    exp.CategoryID,
		Status:        string(exp.Status),
		Amount:        amount{exp.Amount},
		AccountNumber: exp.AccountNumber,
		ReceiptPath:   exp.ReceiptPath,
		CreatedBy:     exp.CreatedBy,
	}
}

func (r expenseRecord) toModel() model.Expense {
	exp := model.Expense{
		ID:            r.ID,
		TenantID:      model.TenantID(r.TenantID),
		Title:         r.Title,
		Description:   r.Description,
		ExpenseDate:   r.ExpenseDate,
		CategoryID:    r.CategoryID,
		Status:        model.ExpenseStatus(r.Status),
		Amount:        r.Amount.Decimal,
		AccountNumber: r.AccountNumber,
		ReceiptPath:   r.ReceiptPath,
		CreatedBy:     r.CreatedBy,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	for _, c := range r.Costs {
		exp.Costs = append(exp.Costs, model.Cost{
			ID:          c.ID,
			Title:       c.Title,
			Date:        c.Date,
			Amount:      c.Amount.Decimal,
			VatPercent:  c.VatPercent,
			Currency:    c.Currency,
			PaymentType: model.PaymentType(c.PaymentType),
			Chargeable:  c.Chargeable,
		})
	}
	for _, a := range r.Attachments {
		exp.Attachments = append(exp.Attachments, a.toModel())
	}
	return exp
}

func (a attachmentRecord) toModel() model.Attachment {
	return model.Attachment{ID: a.ID, Filename: a.Filename, MimeType: a.MimeType, Data: a.Data, CreatedAt: a.CreatedAt}
}

type voucherRecord struct {
	ID          string `gorm:"primaryKey;size:36"`
	TenantID    int64  `gorm:"index;not null"`
	Description string
	Date        time.Time `gorm:"index"`
	CreatedAt   time.Time
	Postings    []postingRecord `gorm:"foreignKey:VoucherID"`
}

func (voucherRecord) TableName() string { return "vouchers" }

type postingRecord struct {
	ID               int64     `gorm:"primaryKey"`
	VoucherID        string    `gorm:"size:36;index;not null"`
	RowNumber        int       `gorm:"column:row_no"`
	AccountNumber    string    `gorm:"size:10;not null"`
	Amount           amount    `gorm:"precision:38;scale:4;not null"`
	Currency         string    `gorm:"size:3"`
	OriginalAmount   amount    `gorm:"precision:38;scale:4"`
	OriginalCurrency string    `gorm:"size:3"`
	PostingDate      time.Time `gorm:"not null"`
	Description      string
	VatCode          string `gorm:"size:10"`
}

func (postingRecord) TableName() string { return "postings" }

func newVoucherRecord(v *model.Voucher) voucherRecord {
	rec := voucherRecord{
		ID:          v.ID,
		TenantID:    int64(v.TenantID),
		Description: v.Description,
		Date:        v.Date,
	}
	for _, p := range v.Postings {
		rec.Postings = append(rec.Postings, postingRecord{
			RowNumber:        p.RowNumber,
			AccountNumber:    p.AccountNumber,
			Amount:           amount{p.Amount},
			Currency:         p.Currency,
			OriginalAmount:   amount{p.OriginalAmount},
			OriginalCurrency: p.OriginalCurrency,
			PostingDate:      p.PostingDate,
			Description:      p.Description,
			VatCode:          p.VatCode,
		})
	}
	return rec
}

func (r voucherRecord) toModel() model.Voucher {
	v := model.Voucher{
		ID:          r.ID,
		TenantID:    model.TenantID(r.TenantID),
		Description: r.Description,
		Date:        r.Date,
		CreatedAt:   r.CreatedAt,
	}
	for _, p := range r.Postings {
		v.Postings = append(v.Postings, model.Posting{
			AccountNumber:    p.AccountNumber,
			Amount:           p.Amount.Decimal,
			Currency:         p.Currency,
			OriginalAmount:   p.OriginalAmount.Decimal,
			OriginalCurrency: p.OriginalCurrency,
			PostingDate:      p.PostingDate,
			Description:      p.Description,
			VatCode:          p.VatCode,
			RowNumber:        p.RowNumber,
		})
	}
	return v
}
