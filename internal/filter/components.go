package filter

import "sort"

// Components groups triangles into connected pieces: two triangles are connected when
// they share a vertex index. Each component lists triangle indices in ascending order;
// components are ordered largest first, ties by first triangle.
func Components(tris [][3]int) [][]int {
	if len(tris) == 0 {
		return nil
	}

	// Build adjacency: vertex -> triangles using it
	byVertex := make(map[int][]int)
	for t, tri := range tris {
		for _, v := range tri {
			byVertex[v] = append(byVertex[v], t)
		}
	}

	// DFS over triangles
	visited := make([]bool, len(tris))
	var components [][]int
	for t := range tris {
		if visited[t] {
			continue
		}
		var comp []int
		stack := []int{t}
		visited[t] = true
		for len(stack) > 0 {
			curr := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, curr)
			for _, v := range tris[curr] {
				for _, nb := range byVertex[v] {
					if !visited[nb] {
						visited[nb] = true
						stack = append(stack, nb)
					}
				}
			}
		}
		sort.Ints(comp)
		components = append(components, comp)
	}

	sort.SliceStable(components, func(i, j int) bool {
		return len(components[i]) > len(components[j])
	})
	return components
}
