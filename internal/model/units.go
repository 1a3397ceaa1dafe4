package model

import (
	"math"

	"github.com/shopspring/decimal"
)

// Energy is an amount of energy in MWh.
//
// Energy, Power and Cost are distinct types so they can only be combined with
// values of the same kind; converting between them is explicit (ToCost, ToEnergy).
type Energy float64

// Power is an average power over one tick in MW.
type Power float64

// Cost is an amount of money in the market's currency.
type Cost float64

func (e Energy) Add(o Energy) Energy { return e + o }
func (e Energy) Sub(o Energy) Energy { return e - o }
func (e Energy) Abs() Energy         { return Energy(math.Abs(float64(e))) }

// Scale multiplies by a dimensionless factor (e.g. an efficiency).
func (e Energy) Scale(f float64) Energy { return Energy(float64(e) * f) }

// Div divides by a dimensionless factor.
func (e Energy) Div(f float64) Energy { return Energy(float64(e) / f) }

// Ratio returns e/o as a plain number (e.g. relative state of charge).
func (e Energy) Ratio(o Energy) float64 { return float64(e) / float64(o) }

func (e Energy) Less(o Energy) bool    { return e < o }
func (e Energy) Greater(o Energy) bool { return e > o }

// ToCost prices the energy at pricePerMWh.
func (e Energy) ToCost(pricePerMWh Cost) Cost { return Cost(float64(e) * float64(pricePerMWh)) }

func (e Energy) Float() float64 { return float64(e) }

func (p Power) Add(o Power) Power { return p + o }
func (p Power) Sub(o Power) Power { return p - o }

// ToEnergy converts power sustained over one one-hour tick into energy.
func (p Power) ToEnergy() Energy { return Energy(p) }

func (p Power) Float() float64 { return float64(p) }

func (c Cost) Add(o Cost) Cost      { return c + o }
func (c Cost) Sub(o Cost) Cost      { return c - o }
func (c Cost) Scale(f float64) Cost { return Cost(float64(c) * f) }
func (c Cost) Div(f float64) Cost   { return Cost(float64(c) / f) }
func (c Cost) Abs() Cost            { return Cost(math.Abs(float64(c))) }
func (c Cost) Less(o Cost) bool     { return c < o }
func (c Cost) Greater(o Cost) bool  { return c > o }
func (c Cost) Float() float64       { return float64(c) }

// Round rounds half away from zero to the given number of decimal places.
func (c Cost) Round(places int32) Cost {
	if math.IsInf(float64(c), 0) || math.IsNaN(float64(c)) {
		return c
	}
	return Cost(decimal.NewFromFloat(float64(c)).Round(places).InexactFloat64())
}
