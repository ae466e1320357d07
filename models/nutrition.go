package models

import "math"

// Nutrition is the snapshot stored on entries, summaries and catalog
// references. Values are clamped to >= 0 before they are persisted.
type Nutrition struct {
	Calories     float64 `json:"calories"`
	Protein      float64 `json:"protein"`
	Carbs        float64 `json:"carbs"`
	Fat          float64 `json:"fat"`
	Fiber        float64 `json:"fiber"`
	Sugar        float64 `json:"sugar"`
	Sodium       float64 `json:"sodium"`
	Cholesterol  float64 `json:"cholesterol"`
	SaturatedFat float64 `json:"saturated_fat"`
	TransFat     float64 `json:"trans_fat"`
}

func (n Nutrition) Add(o Nutrition) Nutrition {
	return Nutrition{
		Calories:     n.Calories + o.Calories,
		Protein:      n.Protein + o.Protein,
		Carbs:        n.Carbs + o.Carbs,
		Fat:          n.Fat + o.Fat,
		Fiber:        n.Fiber + o.Fiber,
		Sugar:        n.Sugar + o.Sugar,
		Sodium:       n.Sodium + o.Sodium,
		Cholesterol:  n.Cholesterol + o.Cholesterol,
		SaturatedFat: n.SaturatedFat + o.SaturatedFat,
		TransFat:     n.TransFat + o.TransFat,
	}
}

// Scale multiplies every field by factor, clamping negative inputs to zero.
func (n Nutrition) Scale(factor float64) Nutrition {
	f := func(v float64) float64 {
		if v < 0 {
			v = 0
		}
		return v * factor
	}
	return Nutrition{
		Calories:     f(n.Calories),
		Protein:      f(n.Protein),
		Carbs:        f(n.Carbs),
		Fat:          f(n.Fat),
		Fiber:        f(n.Fiber),
		Sugar:        f(n.Sugar),
		Sodium:       f(n.Sodium),
		Cholesterol:  f(n.Cholesterol),
		SaturatedFat: f(n.SaturatedFat),
		TransFat:     f(n.TransFat),
	}
}

func (n Nutrition) Round() Nutrition {
	r := func(v float64) float64 { return math.Round(v*100) / 100 }
	return Nutrition{
		Calories:     r(n.Calories),
		Protein:      r(n.Protein),
		Carbs:        r(n.Carbs),
		Fat:          r(n.Fat),
		Fiber:        r(n.Fiber),
		Sugar:        r(n.Sugar),
		Sodium:       r(n.Sodium),
		Cholesterol:  r(n.Cholesterol),
		SaturatedFat: r(n.SaturatedFat),
		TransFat:     r(n.TransFat),
	}
}
