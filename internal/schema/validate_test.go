package schema

import (
	"errors"
	"reflect"
	"testing"
)

func TestCheck(t *testing.T) {
	full := []string{
		"id", "status", "currency", "type", "tax_amount", "total_amount", "customer_id",
		"billing_email", "date_created_gmt", "payment_method", "payment_method_title",
		"transaction_id", "customer_note", "extra_column",
	}
	if err := Check(Orders, full); err != nil {
		t.Fatalf("Check(full) error = %v, want nil", err)
	}

	partial := []string{"id", "status", "currency", "type", "tax_amount", "customer_id", "billing_email", "payment_method"}
	err := Check(Orders, partial)
	var mce *MissingColumnsError
	if !errors.As(err, &mce) {
		t.Fatalf("Check(partial) error = %v, want *MissingColumnsError", err)
	}
	want := []string{"total_amount", "date_created_gmt", "payment_method_title", "transaction_id", "customer_note"}
	if !reflect.DeepEqual(mce.Missing, want) {
		t.Fatalf("Missing = %v, want %v", mce.Missing, want)
	}
	if mce.Table != "orders" {
		t.Fatalf("Table = %q", mce.Table)
	}
}

func TestCheck_AddressFieldsOptional(t *testing.T) {
	if err := Check(Addresses, []string{"order_id", "address_type", "city"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := Check(Meta, []string{"order_id"})
	if err == nil || err.Error() != "schema: table orders_meta is missing required columns: meta_key, meta_value" {
		t.Fatalf("unexpected error: %v", err)
	}
}
