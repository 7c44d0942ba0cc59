package domain

// Tick - номер шага симуляции. Фиксированной ширины, переполняется и
// начинается с нуля, поэтому сравнивается только через SequenceGreaterThan.
type Tick uint16

// tickHalfRange - половина диапазона Tick: окно, в котором "больше" имеет смысл.
const tickHalfRange = 1 << 15

// SequenceGreaterThan сообщает, что a новее b с учетом переполнения.
func SequenceGreaterThan(a, b Tick) bool {
	return (a > b && a-b <= tickHalfRange) || (a < b && b-a > tickHalfRange)
}

// After - синоним SequenceGreaterThan для читаемости.
func (t Tick) After(o Tick) bool {
	return SequenceGreaterThan(t, o)
}

// Next возвращает следующий тик (с переполнением).
func (t Tick) Next() Tick {
	return t + 1
}

// Diff возвращает знаковое расстояние t - o в тиках.
func (t Tick) Diff(o Tick) int {
	return int(int16(t - o))
}

// LatestTick находит самый новый тик в наборе. ok == false для пустого набора.
func LatestTick(ticks ...Tick) (latest Tick, ok bool) {
	for _, t := range ticks {
		if !ok || SequenceGreaterThan(t, latest) {
			latest = t
			ok = true
		}
	}
	return latest, ok
}
