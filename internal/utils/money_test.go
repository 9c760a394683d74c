package utils

import "testing"

func TestToMinorUnits(t *testing.T) {
    cases := []struct {
        amount float64
        want   int64
    }{
        {120.00, 12000},
        {19.99, 1999},
        {0.01, 1},
        {0, 0},
        {1234.56, 123456},
    }
    for _, tc := range cases {
        if got := ToMinorUnits(tc.amount); got != tc.want {
            t.Errorf("ToMinorUnits(%v) = %d, want %d", tc.amount, got, tc.want)
        }
    }
}

func TestFromMinorUnits(t *testing.T) {
    if got := FromMinorUnits(12000); got != 120.00 {
        t.Errorf("FromMinorUnits(12000) = %v, want 120", got)
    }
    if got := FromMinorUnits(1999); got != 19.99 {
        t.Errorf("FromMinorUnits(1999) = %v, want 19.99", got)
    }
}
