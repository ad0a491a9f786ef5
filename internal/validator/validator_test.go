package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type sample struct {
	Color     string `binding:"omitempty,hex_color"`
	Split     string `binding:"omitempty,split_type"`
	Frequency string `binding:"omitempty,frequency"`
	Charge    string `binding:"omitempty,charge_frequency"`
	Role      string `binding:"omitempty,user_role"`
	Account   string `binding:"omitempty,account_type"`
	Month     int    `binding:"omitempty,month"`
}

func TestRegister(t *testing.T) {
	Register()
	if _, ok := binding.Validator.Engine().(*validator.Validate); !ok {
		t.Fatal("expected go-playground validator engine")
	}

	tests := []struct {
		name    string
		in      sample
		wantErr bool
	}{
		{name: "all valid", in: sample{Color: "#A1B2C3", Split: "33_67", Frequency: "one_time", Charge: "annual", Role: "child", Account: "savings", Month: 12}},
		{name: "short hex rejected", in: sample{Color: "#abc"}, wantErr: true},
		{name: "unknown split", in: sample{Split: "equal"}, wantErr: true},
		{name: "one_time is not a charge frequency", in: sample{Charge: "one_time"}, wantErr: true},
		{name: "unknown role", in: sample{Role: "root"}, wantErr: true},
		{name: "unknown account type", in: sample{Account: "crypto"}, wantErr: true},
		{name: "month 13", in: sample{Month: 13}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
