package reactive

// React subscribes fn to every given observable.
func React(fn func(), observables ...Listenable) {
	for _, o := range observables {
		o.Subscribe(fn)
	}
}

// ReactChange subscribes fn to o with the previous and current values.
func ReactChange[T comparable](fn func(prev, cur T), o *Observable[T]) {
	o.Listen(fn)
}
