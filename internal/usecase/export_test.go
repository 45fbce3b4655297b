package usecase

import "time"

func (u *CheckoutUseCase) SetClock(now func() time.Time)  { u.now = now }
func (u *ReconcileUseCase) SetClock(now func() time.Time) { u.now = now }
func (u *OrderUseCase) SetClock(now func() time.Time)     { u.now = now }

var NewOrderID = newOrderID
